// Package kurs provides the exchange outlet listing provider for kurs.kz.
//
// # Source
//
// Source: "Kurs.kz"
// URL: https://kurs.kz/site/index?city=<query>
//
// The listing page carries no public API. Outlets are embedded in inline
// script blocks as JavaScript array literals:
//
//	var punkts = [{"id":1,"name":"...","data":{"USD":[470,475]},...}];
//
// Almaty additionally carries a higher-priority literal
// (var punktsFromInternet = [...]), which is checked first.
//
// # Extraction
//
// Inline scripts are isolated with goquery. Each configured marker (a variable
// name) is located in the script text, and the array literal assigned to it is
// captured with a depth-counting bracket scanner that skips string literals,
// so nested objects and arrays never truncate the capture.
//
// # Decoding
//
// Every literal is decoded independently. A malformed literal fails on its own,
// and a record missing a required field (id, name, lat, lng, actualTime) is
// dropped and counted, never zero-filled.
//
// Currency quotes are kept only if both the buy and sell prices are present
// and strictly positive. Quote order follows the source mapping, which is not
// guaranteed stable between fetches.
package kurs
