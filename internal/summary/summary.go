package summary

import "workshopmods/internal/resolve"

// Summary represents aggregated outcome counts for one run.
type Summary struct {
	Items    int `json:"items"`
	Found    int `json:"found"`
	NotFound int `json:"not_found"`
	Failed   int `json:"failed"`
	ModIDs   int `json:"mod_ids"`

	DownloadsSkipped int `json:"downloads_skipped,omitempty"`
	Downloaded       int `json:"downloaded,omitempty"`
	DownloadsFailed  int `json:"downloads_failed,omitempty"`
}

// Summarize computes counts from a list of results.
// An item is found when it yielded at least one mod ID, failed when its
// status is error, and not found otherwise.
func Summarize(results []resolve.Result) Summary {
	var s Summary
	for _, r := range results {
		s.Items++
		s.ModIDs += len(r.ModIDs)
		switch {
		case r.Found():
			s.Found++
		case r.Status == resolve.StatusError:
			s.Failed++
		default:
			s.NotFound++
		}
		switch r.Download {
		case resolve.DownloadSkipped:
			s.DownloadsSkipped++
		case resolve.DownloadDone:
			s.Downloaded++
		case resolve.DownloadFailed:
			s.DownloadsFailed++
		}
	}
	return s
}
