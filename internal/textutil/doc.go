// Package textutil provides case-folded matching and caption text
// normalization.
//
// Window titles and process image names are compared with full Unicode case
// folding rather than ASCII lowering so localized titles match reliably.
// Caption text is normalized to NFC with surrounding whitespace removed before
// it is compared against the last emitted caption.
package textutil
