// Package feed streams status documents to websocket subscribers.
//
// The Hub is registered as a status publisher hook and mounted at Path on
// the companion HTTP listener. Every published document is sent as one text
// message containing the same JSON a "GET /j" request returns. New
// subscribers get the latest document straight away, so a watcher never has
// to wait a full publish interval.
//
// Subscribers that cannot keep up are disconnected rather than slowing the
// publisher down.
package feed
