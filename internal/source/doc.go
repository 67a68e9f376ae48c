// ABOUTME: Source package resolving URIs to media byte streams
// ABOUTME: Supports local paths, file://, http(s):// and s3:// URIs
// Package source opens the raw byte stream behind a decode URI.
//
// A Registry maps URI schemes to Openers. Plain paths without a scheme are
// opened as local files. Seekable streams (files, S3 objects) let codec
// backends seek natively; HTTP bodies are forward-only.
package source
