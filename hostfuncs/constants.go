package hostfuncs

// DefaultMaxRequestSize limits how many bytes a single host function request
// read from runtime memory may carry. 1MB is far beyond any legitimate
// request; larger reads indicate a corrupted pointer/length pair.
const DefaultMaxRequestSize uint32 = 1 << 20
