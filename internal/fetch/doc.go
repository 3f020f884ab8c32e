// Package fetch performs the outbound HTTP requests for remote resources.
//
// A Client issues exactly one GET per call. It never retries: the caller
// (the resource cache) decides what a failure means, which in this tool is
// always "substitute the placeholder image".
//
// Requests carry a browser user agent, an Accept header preferring image
// formats and a Referer. Some image CDNs reject hot-linked requests that lack
// a plausible referer, so the referer is taken from the article's own
// canonical URL when one is known (see Client.ForDocument).
//
// # Usage
//
//	client, err := fetch.NewClient(30*time.Second, fetch.WithUserAgent(ua))
//	payload, err := client.ForDocument(ogURL).Fetch(ctx, "https://host/a.png")
package fetch
