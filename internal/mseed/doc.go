// Package mseed reads and writes miniSEED 2.x data records.
//
// Decoding covers the encodings seen in archived lunar and terrestrial
// seismic data: 16/32-bit integers, 32/64-bit IEEE floats, Steim1 and Steim2.
// Every record must carry blockette 1000; blockette 100 overrides the
// header sample rate and blockette 1001 adds microsecond timing.
//
// Records are assembled into Traces: continuous runs of samples sharing a
// SEED identifier. Encoding writes blockette 1000 + 100 records with integer
// or float payloads and is used to produce fixtures and converted data.
package mseed
