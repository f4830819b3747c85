// Package s3 provides a client for gmonitor object storage (S3-compatible).
//
// It handles object upload, download, deletion, and link generation for
// files shared between gmonitor services. Connection parameters come from a
// config.Settings constructed once at process start.
package s3
