// Package decode provides the format readers every ecosystem parser builds on.
//
// The decoders know nothing about package managers. They normalize the input
// the same way regardless of format:
//
//   - A leading UTF-8 byte-order mark is removed.
//   - Empty or whitespace-only input decodes to the zero value.
//   - Text is split on both "\n" and "\r\n".
//
// Syntax failures are reported as [*Error], which records the format and the
// file (when known):
//
//	var lock cargoLock
//	if err := decode.ReadFile(path, decode.TOML, &lock); err != nil {
//	    var de *decode.Error
//	    if errors.As(err, &de) {
//	        logger.Warn("lockfile unreadable", "file", de.Path, "err", de.Err)
//	    }
//	}
package decode
