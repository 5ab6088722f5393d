// Package client is the controller side of the relay board protocol.
//
// Each call opens a TCP connection, sends one request line, reads until the
// board closes and parses the fixed response header. Failures come back as
// *Error values with a category (see ErrorType) and Hint renders advice for
// the command line tool.
//
//	c := client.New("192.168.4.16")
//	if err := c.Set(ctx, 1, true); err != nil {
//	    fmt.Println(client.Hint(err))
//	}
package client
