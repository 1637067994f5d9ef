package mcpserver

// FrontmatterContract describes the note fields feedpost reads when
// building a Microfeed item.
const FrontmatterContract = `# feedpost Front-matter Contract

A note is published as one Microfeed item. Front matter is optional; every
field below has a fallback.

## Structure

` + "```" + `markdown
---
title: Episode 12 - Shipping      # OPTIONAL - else first "# " heading, else file name
status: published                 # OPTIONAL - published | unpublished | unlisted
itunes:episode: 12                # OPTIONAL - any itunes:* key is passed through
itunes:explicit: false
---

# Episode 12 - Shipping

![[episode-12.mp3]]

Show notes in standard Markdown.
` + "```" + `

## Rules

1. **Fences.** ` + "`" + `---` + "`" + ` must be the first line. A block without a closing fence is
   treated as body text.
2. **Title** precedence: front-matter ` + "`" + `title` + "`" + `, then the first level-1 heading,
   then the file name without ` + "`" + `.md` + "`" + `.
3. **Status** defaults to the configured value (usually ` + "`" + `published` + "`" + `). Unknown
   values are ignored.
4. **Extension fields** are keys with the configured prefix (default ` + "`" + `itunes:` + "`" + `).
   They are sent unchanged in the item's ` + "`" + `_microfeed` + "`" + ` object.

## Media

- Embeds ` + "`" + `![[file.ext]]` + "`" + ` and links ` + "`" + `![alt](file.ext)` + "`" + ` / ` + "`" + `[text](file.ext)` + "`" + ` are
  recognised by extension: audio (mp3 wav m4a aac ogg flac), video (mp4 mov
  avi mkv webm m4v), image (jpg jpeg png gif webp svg), document (pdf doc
  docx txt rtf). ` + "`" + `http(s)://` + "`" + ` links count as external URLs.
- Local media is uploaded and removed from the body; the first match in
  audio, video, image, document, external URL order becomes the attachment.
- The item image is the attachment when it is an image, else the first
  uploaded image. With no image a cover may be generated.
- Paths are relative to the note's folder; ` + "`" + `../` + "`" + ` is allowed. Bare file names
  resolve against the vault root.
- Use ` + "`" + `save_attachment` + "`" + ` to store binary media in the vault before embedding it.

## Example

` + "```" + `markdown
---
title: Weekly digest
status: unlisted
---

![[attachments/cover.png]]

This week in links:
- [release notes](https://example.com/release)
` + "```" + `
`
