// Copyright (C) 2025 Sanders Data, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package cloudstorage is the object-store half of the storage gateway:
// put, get, head and list against S3, with no business logic.
package cloudstorage

import (
	"context"

	"github.com/sandersdata/customer-platform/internal/awsclient"
)

// Client provides the object-store operations the pipeline needs.
type Client interface {
	// UploadObject uploads a local file to the given bucket/key,
	// overwriting any existing object at that address.
	UploadObject(ctx context.Context, bucket, key, sourceFilename string) error

	// DownloadObject downloads an object to a temp file under tmpdir.
	// Returns the temp filename, size, whether the object was not found,
	// and error.
	DownloadObject(ctx context.Context, tmpdir, bucket, key string) (filename string, size int64, notFound bool, err error)

	// ObjectExists reports whether bucket/key resolves to an object.
	ObjectExists(ctx context.Context, bucket, key string) (bool, error)

	// ListObjects returns all keys under the given prefix.
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
}

// NewClient builds an S3-backed Client from the shared AWS manager.
func NewClient(ctx context.Context, mgr *awsclient.Manager, opts ...awsclient.S3Option) (Client, error) {
	s3c, err := mgr.GetS3(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &s3Client{awsS3Client: s3c}, nil
}
