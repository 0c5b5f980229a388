// Package docconv talks to the document conversion service that assembles a
// user's submission files into one combined PDF and renders its page images.
//
// The service reports failures it understands as a JSON body carrying an
// error code; those surface as *ConversionError. Anything else (transport
// failures, malformed responses) is returned as an ordinary wrapped error.
package docconv
