// Package resolve maps Workshop item IDs to the mod IDs they contain.
//
// Two resolvers exist. Web reads the item's public detail page. Download
// fetches the item with SteamCMD and reads its mod.info files. Both report
// per-item problems inside Result and never abort a batch.
package resolve

import "errors"

// Status is the outcome of resolving one item.
type Status string

const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
	StatusError    Status = "error"
)

// DownloadState is the download sub-state of an item in the download variant.
type DownloadState string

const (
	DownloadPending DownloadState = "pending"
	DownloadSkipped DownloadState = "skipped_already_present"
	DownloadDone    DownloadState = "downloaded"
	DownloadFailed  DownloadState = "download_failed"
)

var (
	// ErrModIDMissing means the detail page loaded but carried no Mod ID.
	ErrModIDMissing = errors.New("no mod id on workshop page")
	// ErrMetadataMissing means the item has no mods directory.
	ErrMetadataMissing = errors.New("mods directory not found")
	// ErrMetadataEmpty means no mod.info yielded an id.
	ErrMetadataEmpty = errors.New("no mod id in mod.info files")
)

// Result associates one item with the mod IDs found for it.
type Result struct {
	ItemID   string
	ModIDs   []string
	Title    string
	Status   Status
	Download DownloadState
	Err      error
}

// Found reports whether at least one mod ID was resolved.
func (r Result) Found() bool { return len(r.ModIDs) > 0 }
