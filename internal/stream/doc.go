// Package stream defines the capability contract each collection
// stream implements, and the three stream kinds: dark-pool trade
// prints, news headlines, and option-flow signals.
//
// The engine (paginator, sink, run coordinator) is written against
// this contract rather than against stream-specific control flow;
// adding a stream means implementing FetchPage and nothing else.
package stream
