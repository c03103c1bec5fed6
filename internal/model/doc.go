// Package model defines shared data types used across the collection engine.
//
// Conventions:
//   - Prices and premiums: integer hundred-thousandths of a dollar
//     (52000 = $0.52)
//   - Timestamps: time.Time in UTC, persisted as timestamptz
//   - IDs: uuid.UUID for vendor-assigned trade and signal IDs
package model
