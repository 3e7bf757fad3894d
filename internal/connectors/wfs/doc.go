// Package wfs implements bulk acquisition from OGC Web Feature Services.
//
// A GetFeature URL is resolved into a complete local dataset in four steps,
// each built on the driven Fetcher and FileSystem ports.
//
// # Architecture
//
//   - Negotiator: fetches GetCapabilities, picks the highest version the
//     server declares and reads its paging and hits support
//   - FastPath: asks for resultType=hits and downloads counts below the
//     threshold in one request; Direct does the same without a count
//   - Pager: walks startIndex pages until the server stops sending next
//   - Merger: concatenates the page members under one root and removes
//     the page artifacts
//
// # Versions
//
// 2.0.0 requests use typeNames and count; 1.1.0 and 1.0.0 use typeName and
// maxFeatures. A version=2.0.0 parameter on the input URL is honoured even
// when the capabilities document fails to declare it.
//
// # Artifacts
//
// Single-request strategies write dataset.xml; paging writes dataset0.xml,
// dataset1.xml and so on. Merged output is always UTF-8.
//
// Every fatal error is a *domain.StageError naming the stage and URL.
package wfs
