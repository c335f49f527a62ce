// Package compose draws an invitation onto a raster surface.
//
// # Drawing order
//
//  1. The surface is filled with the scheme background color.
//  2. The template background image is drawn full-bleed, cropped to fill.
//     When it is absent or cannot be loaded, a decorative border is drawn
//     instead and the render continues.
//  3. Each element's binding is resolved by {placeholder} substitution and
//     drawn at its percentage position. y is the baseline of the first line;
//     wrapped line N sits at baseline + N*lineHeight.
//  4. A names element whose text contains " & " is drawn as two stacked
//     names with an ampersand between flanking rules.
//  5. The RSVP QR code, when enabled, is drawn with a caption beneath it.
//
// # Concurrency
//
// A Composer holds only shared read-only state (parsed fonts, decoded
// assets) and may be used by many goroutines. Each Compose call owns its
// surface and font faces.
package compose
