// Package gateway exposes the engine over WebSocket with JSON frames.
//
// Inbound frames are commands:
//
//	{"id":"1","type":"request","namespace":"guild","user_id":"42","display_name":"alice","text":"AAPL, Alphabet"}
//	{"id":"2","type":"choose","namespace":"guild","user_id":"42","choice":"1"}
//	{"id":"3","type":"count","namespace":"guild"}
//	{"id":"4","type":"reset","namespace":"guild"}
//
// Outbound frames answer a command by id:
//
//	{"type":"reply","reply_to":"1","text":"Multiple tickers found for ALPHABET:","prompt":{...},"ephemeral":true}
//	{"type":"error","reply_to":"9","error":"unknown command type \"vote\""}
//
// Each connection is served by one reader goroutine, so a connection's
// commands are handled in order. Writes are serialized and bounded by a
// write deadline. The server pings every connection and drops those whose
// pong is stale.
package gateway
