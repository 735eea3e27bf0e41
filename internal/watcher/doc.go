// Package watcher polls the configured folders for new files and promotes
// them once their size has held steady for the stability window. Promotion is
// the only way files enter the pipeline; the watcher never reads file content
// and never blocks on a full dispatch queue.
package watcher
