// Package instagram holds the URLs and DOM selectors of Instagram's web UI.
//
// Nothing here talks to the network; the browser package drives pages and
// the collector and resolver packages consume these selectors.
package instagram
