package drive

import "regexp"

// Google Drive share links come in two shapes:
//
//	https://drive.google.com/file/d/{fileID}/view
//	https://drive.google.com/open?id={fileID}
//
// Both are rewritten to a direct-download URL. docs.google.com is used
// instead of drive.google.com to avoid the mobile download interstitial.
var (
	pathIDPattern  = regexp.MustCompile(`/d/([^/?#]+)`)
	queryIDPattern = regexp.MustCompile(`[?&]id=([^&#]+)`)
)

const downloadBase = "https://docs.google.com/uc?export=download&id="

// FileID extracts the Drive file identifier from a share link. It returns
// an empty string when the link does not match a known pattern.
func FileID(link string) string {
	if link == "" {
		return ""
	}
	if m := pathIDPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	if m := queryIDPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}

// DownloadLink converts a Drive share link into a direct-download URL.
// Unrecognised links are returned unchanged so that opening the file never
// breaks on an unexpected host.
func DownloadLink(link string) string {
	id := FileID(link)
	if id == "" {
		return link
	}
	return downloadBase + id
}
