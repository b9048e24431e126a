// Package session is the programmatic surface of dtable.
//
// A Session owns the built table and command templates, the long-lived
// state locators, the attached trackers and an optional StateStore. Every
// public operation is one evaluation episode:
//
//  1. Clone every table template (tables are prototypes, never reused)
//  2. Merge the constant locator, the state locators and any request
//     locators into a fresh ComputationContext
//  3. Evaluate
//  4. Persist changed state locators and the episode record
//
// Episodes are serialized by the session. Their order is a logical clock
// (seq), resumed from the store on New.
package session
