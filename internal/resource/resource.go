// Package resource formats and parses ByteStream resource names for
// content-addressed blobs.
//
// Uploads use "{instance}/uploads/{uuid}/blobs/{hash}/{size}"; downloads use
// "{instance}/blobs/{hash}/{size}". The instance prefix is free-form and may
// itself contain slashes, so parsing anchors on the trailing blobs segment.
package resource

import (
	"strconv"
	"strings"

	repb "github.com/bazelbuild/remote-apis/build/bazel/remote/execution/v2"
	"go.einride.tech/aip/resourcename"
)

const (
	blobPattern   = "blobs/{hash}/{size}"
	uploadPattern = "uploads/{uuid}/blobs/{hash}/{size}"
)

// UploadName returns the resource name for uploading d under the given
// instance and upload UUID. An empty instance yields an unprefixed name.
func UploadName(instance, uuid string, d *repb.Digest) string {
	name := resourcename.Sprint(uploadPattern, uuid, d.GetHash(), strconv.FormatInt(d.GetSizeBytes(), 10))
	if instance == "" {
		return name
	}
	return instance + "/" + name
}

// BlobName returns the resource name for reading d.
func BlobName(instance string, d *repb.Digest) string {
	name := resourcename.Sprint(blobPattern, d.GetHash(), strconv.FormatInt(d.GetSizeBytes(), 10))
	if instance == "" {
		return name
	}
	return instance + "/" + name
}

// ParseDigest extracts the digest from an upload or blob resource name.
// It reports false when the name does not end in a blobs/{hash}/{size}
// triple with a well-formed size.
func ParseDigest(name string) (*repb.Digest, bool) {
	segments := strings.Split(name, "/")
	if len(segments) < 3 {
		return nil, false
	}
	tail := strings.Join(segments[len(segments)-3:], "/")
	var hash, size string
	if err := resourcename.Sscan(tail, blobPattern, &hash, &size); err != nil {
		return nil, false
	}
	sizeBytes, err := strconv.ParseInt(size, 10, 64)
	if err != nil || sizeBytes < 0 {
		return nil, false
	}
	return &repb.Digest{Hash: hash, SizeBytes: sizeBytes}, true
}
