// Package status renders and publishes the board's JSON status snapshot.
//
// A Publisher runs beside the connection server. Every interval it reads the
// relay levels and system counters, marshals a new Document and stores it
// with a single atomic pointer swap. The server serves whatever Current
// returns; it can never see a document that is still being built.
//
//	pub, err := status.NewPublisher(bank, status.NewRuntimeCounters(), status.Options{
//	    SSID:     "relayboard",
//	    Interval: 2 * time.Second,
//	})
//	go pub.Run(ctx)
//
// Readers may see a document up to one interval old.
package status
