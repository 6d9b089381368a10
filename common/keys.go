package common

type httpClientKeyType struct{}

// HttpClientKey carries an *http.Client override in a context.
var HttpClientKey httpClientKeyType
