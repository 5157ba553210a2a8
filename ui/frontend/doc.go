// Package frontend provides the server-side rendered web interface for
// the uderia client.
//
// Pages are plain html/template with a shared base layout; the chat view
// polls its view fragment on an interval so the rendered session keeps
// up with live streams without any client-side framework. Message bodies
// are rendered as markdown and sanitized before display.
package frontend
