// Package output renders transformation results as markdown with YAML
// frontmatter or as a JSON envelope and persists them atomically. The rename
// into the destination directory only happens after the full result is on
// disk, which is what makes deleting the source file afterwards safe.
package output
