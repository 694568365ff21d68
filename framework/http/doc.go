// Package http provides the request and response helpers used by the
// inspector.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//	scope := req.Query("scope", "all")
//	cached := req.QueryBool("cached", false)
//	name := req.RouteParam("name")
//
// # Response
//
// Responses use a JSON envelope: {"data": ...} on success and
// {"message": ...} on failure.
//
//	res := gohttp.NewResponse(w)
//	res.Success(beans)
//	res.NotFound("no bean named 'x'")
package http
