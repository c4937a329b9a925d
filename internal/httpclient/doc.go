// Package httpclient issues the GET and POST calls of a run.
//
// [NewIssuer] builds a [runner.Issuer] from configuration: a shared
// [net/http.Client] from [NewClient], one [RequestBuilder] per call kind, an
// optional gjson response assertion and an optional client span per call.
//
//	issuer, err := httpclient.NewIssuer(cfg, httpclient.NewClient(cfg.Timeout), provider)
//	if err != nil {
//		return err
//	}
//	latency, err := issuer.Get(ctx, target)
//
// Responses with a status of 400 or above are reported as [runner.HTTPError].
// Targets without a scheme are treated as plain HTTP; see [NormalizeTarget].
package httpclient
