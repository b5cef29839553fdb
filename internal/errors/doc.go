// Package errors provides the classified error type used across sitegen.
//
// Every failure a build can report carries an ErrorCategory that maps onto the
// build error taxonomy:
//   - CategoryConfigRead:  catalog file missing or unreadable
//   - CategoryConfigParse: catalog could not be decoded or is structurally invalid
//   - CategoryArticleRead: an article source file could not be read
//   - CategoryTemplate:    a page template failed to load, parse or execute
//   - CategoryOutputDir:   the output directory could not be prepared or swapped
//   - CategoryPublish:     a version-control step failed (soft failure)
//
// Example usage:
//
//	err := errors.ArticleReadError(path, cause).
//		WithContext("article_id", 3).
//		Build()
package errors
