package parser

import (
	"mime"
	"path"
	"strings"
)

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".heic": "image/heic",
}

// mediaType guesses an image media type from a file name. The second
// result is false for non-image extensions.
func mediaType(name string) (string, bool) {
	ext := strings.ToLower(path.Ext(name))
	known, ok := imageTypes[ext]
	if !ok {
		return "", false
	}
	if byExt := mime.TypeByExtension(ext); strings.HasPrefix(byExt, "image/") {
		return strings.SplitN(byExt, ";", 2)[0], true
	}
	return known, true
}
