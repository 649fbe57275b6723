// Command bookmatch matches a Goodreads reading-list export against the
// BookOutlet storefront and reports which titles are in stock.
package main
