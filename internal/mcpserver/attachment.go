package mcpserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/feedpost/internal/media"
)

const (
	maxAttachmentSize    = 50 << 20 // 50 MB
	defaultAttachmentDir = "attachments"
)

var (
	mimeToExt = map[string]string{
		"image/png":       ".png",
		"image/jpeg":      ".jpg",
		"image/gif":       ".gif",
		"image/webp":      ".webp",
		"image/svg+xml":   ".svg",
		"application/pdf": ".pdf",
		"audio/mpeg":      ".mp3",
		"audio/wav":       ".wav",
		"audio/x-wav":     ".wav",
		"audio/mp4":       ".m4a",
		"audio/ogg":       ".ogg",
		"audio/flac":      ".flac",
		"video/mp4":       ".mp4",
		"video/webm":      ".webm",
		"video/quicktime": ".mov",
	}

	safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

type attachmentResult struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Embed string `json:"embed"`
}

func (s *Server) saveAttachment(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := ""
	if v, fErr := req.RequireString("filename"); fErr == nil {
		filename = v
	}
	folder := defaultAttachmentDir
	if v, fErr := req.RequireString("folder"); fErr == nil && strings.Trim(v, "/ ") != "" {
		folder = strings.Trim(v, "/ ")
	}

	data, ext, err := decodeDataURI(uri)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(data) > maxAttachmentSize {
		return mcp.NewToolResultError(fmt.Sprintf("file too large: %d bytes (max %d)", len(data), maxAttachmentSize)), nil
	}

	if filename == "" {
		filename = uuid.New().String() + ext
	}
	filename = sanitizeFilename(filename)

	kind, ok := media.Classify(filename)
	if !ok || kind == media.KindExternalLink {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename))), nil
	}
	if err := checkContent(data, kind); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	savePath := path.Join(folder, filename)
	if _, statErr := s.store.Stat(savePath); statErr == nil {
		return mcp.NewToolResultError(fmt.Sprintf("file already exists: %s", savePath)), nil
	}
	if err := s.store.Write(savePath, data); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save attachment: %v", err)), nil
	}

	return jsonResult(attachmentResult{
		Path:  savePath,
		Kind:  string(kind),
		Embed: "![[" + savePath + "]]",
	})
}

// decodeDataURI parses a data:<mediatype>;base64,<data> URI.
func decodeDataURI(uri string) ([]byte, string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, "", fmt.Errorf("expected a data: URI")
	}
	rest := strings.TrimPrefix(uri, "data:")
	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}

	meta := rest[:commaIdx]
	encoded := rest[commaIdx+1:]

	if !strings.Contains(meta, ";base64") {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	return data, mimeToExt[mime], nil
}

// sanitizeFilename strips path separators and unsafe characters.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = safeFilenameRe.ReplaceAllString(name, "_")
	if name == "" || name == "." {
		name = uuid.New().String()
	}
	return name
}

// checkContent verifies the sniffed content type agrees with kind.
func checkContent(data []byte, kind media.Kind) error {
	if kind == media.KindDocument {
		return nil
	}
	detected := media.DetectMIME(data)
	if !strings.HasPrefix(detected, string(kind)+"/") {
		return fmt.Errorf("content does not match %s (detected: %s)", kind, detected)
	}
	return nil
}
