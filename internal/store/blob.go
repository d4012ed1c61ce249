package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// BlobLoader downloads the latest warehouse CSV export from Azure Blob
// Storage and parses it. The extraction pipeline uploads exports to a fixed
// container; this loader is the read side of that hand-off.
type BlobLoader struct {
	connectionString string
	container        string
	blobName         string
}

// NewBlobLoader creates a loader for the given container and blob.
func NewBlobLoader(connectionString, container, blobName string) *BlobLoader {
	return &BlobLoader{
		connectionString: connectionString,
		container:        container,
		blobName:         blobName,
	}
}

// Load streams the blob and parses it as a CSV export.
func (l *BlobLoader) Load(ctx context.Context) (*Snapshot, error) {
	client, err := azblob.NewClientFromConnectionString(l.connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}

	resp, err := client.DownloadStream(ctx, l.container, l.blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download blob %s/%s: %w", l.container, l.blobName, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	slog.Info("Downloading dataset from blob storage", "container", l.container, "blob", l.blobName)
	snap, err := ParseCSV(ctx, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse blob %s/%s: %w", l.container, l.blobName, err)
	}
	return snap, nil
}

var _ Loader = (*BlobLoader)(nil)
