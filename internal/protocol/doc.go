// Package protocol implements the board's minimal request/response format.
//
// This is not HTTP. A request is one TCP read whose first bytes look like
// the start of a GET request line; the decoder inspects at most seven bytes
// and ignores everything after them.
//
// # Requests
//
//	GET /j...      status document (JSON)
//	GET /h<d>...   switch relay <d> on
//	GET /l<d>...   switch relay <d> off
//	GET /          default page
//
// The channel digit is converted by subtracting '0' and is not range-checked;
// the relay bank rejects channels it does not have. Note that a browser's
// "GET / HTTP/1.1" is long enough to be read as a command and gets FAIL.
//
// # Responses
//
// Every response is one of two fixed headers followed by a body, after which
// the board closes the connection:
//
//	HTTP/1.1 200 OK\r\n
//	Content-type: application/json\r\n
//	\r\n
//	{"info":{...},"relays":{...}}
//
//	HTTP/1.1 200 OK\r\n
//	Content-type: text/html\r\n
//	\r\n
//	OK\n | FAIL\n | <html>...
//
// Malformed requests get no bytes at all.
package protocol
