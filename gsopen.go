package tcga2matrix

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// MaybeOpenFromGoogleStorage opens a local file, or a Google Storage object
// if the path carries the gs:// scheme. The client may be nil for local
// paths.
func MaybeOpenFromGoogleStorage(path string, client *storage.Client) (io.ReadCloser, error) {
	if !strings.HasPrefix(path, "gs://") {
		return os.Open(path)
	}

	if client == nil {
		return nil, fmt.Errorf("%s: no storage client configured for gs:// paths", path)
	}

	// Detect the bucket and the path to the actual object
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 {
		return nil, fmt.Errorf("tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}
	bucketName := pathParts[0]
	objectName := pathParts[1]

	// Open the object with default credentials
	rdr, err := client.Bucket(bucketName).Object(objectName).NewReader(context.Background())
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %s", path, err))
	}

	return rdr, nil
}
