// Package ui renders relayctl output with Lip Gloss and runs the interactive
// watch view on Bubble Tea.
//
// One-shot commands print RenderStatus, RenderSuccess or RenderFailure
// directly. "relayctl watch" runs WatchModel, which polls the board and
// toggles relays with the number keys.
//
// zap logging is silent unless RELAYBOARD_LOG_LEVEL is set, so the styled
// output is not interleaved with log lines.
package ui
