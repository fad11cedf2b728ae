package types

import "fmt"

// Picture represents an embedded image (cover art, artist photo).
//
// Pictures are carried by the APE and ID3v2 standards. When a picture
// handler is configured on read, pictures are delivered to it and the
// Tag's Pictures slice stays empty.
type Picture struct {
	// MIME type of the image data ("image/jpeg", "image/png").
	// Sniffed from Data when the container does not declare it.
	MIMEType string

	// Description of the picture (optional)
	Description string

	// Image binary data
	Data []byte

	// Type of picture (front cover, back cover, artist photo, etc.)
	Type PictureType
}

// PictureType categorizes the purpose of a picture.
//
// Values follow the ID3v2 APIC picture type table; APE "Cover Art (...)"
// item keys map onto the same numbers.
type PictureType byte

// Picture types shared by APE and ID3v2.
const (
	PictureOther PictureType = iota
	PictureIcon
	PictureOtherIcon
	PictureFrontCover
	PictureBackCover
	PictureLeaflet
	PictureMedia
	PictureLeadArtist
	PictureArtist
	PictureConductor
	PictureBand
	PictureComposer
	PictureLyricist
	PictureRecordingLocation
	PictureDuringRecording
	PictureDuringPerformance
	PictureVideoCapture
	PictureBrightFish
	PictureIllustration
	PictureBandLogotype
	PicturePublisherLogotype
)

var pictureTypeNames = [...]string{
	"Other", "Icon", "Other Icon", "Front", "Back", "Leaflet", "Media",
	"Lead Artist", "Artist", "Conductor", "Band", "Composer", "Lyricist",
	"Recording Location", "During Recording", "During Performance",
	"Video Capture", "Bright Fish", "Illustration", "Band Logotype",
	"Publisher Logotype",
}

// String returns the picture type name used in APE "Cover Art (<name>)" keys.
func (p PictureType) String() string {
	if int(p) < len(pictureTypeNames) {
		return pictureTypeNames[p]
	}
	return fmt.Sprintf("PictureType(%d)", byte(p))
}

// ParsePictureType maps a name produced by String back to its type.
// Unknown names map to PictureOther.
func ParsePictureType(name string) PictureType {
	for i, n := range pictureTypeNames {
		if n == name {
			return PictureType(i)
		}
	}
	return PictureOther
}

// String returns a short description of the picture.
//
// Example output: "Front (JPEG, 245KB)"
func (p Picture) String() string {
	return fmt.Sprintf("%s (%s, %s)", p.Type, mimeToFormat(p.MIMEType), formatSize(len(p.Data)))
}

// formatSize formats byte size in human-readable form.
func formatSize(bytes int) string {
	const (
		KB = 1024
		MB = 1024 * KB
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1fMB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%dKB", bytes/KB)
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

// mimeToFormat converts MIME type to short format name.
func mimeToFormat(mime string) string {
	switch mime {
	case "image/jpeg":
		return "JPEG"
	case "image/png":
		return "PNG"
	case "image/gif":
		return "GIF"
	case "image/bmp":
		return "BMP"
	case "image/webp":
		return "WebP"
	default:
		return "Image"
	}
}
