// Package domain mirrors the records owned by the inventory backend.
//
// Values here are read-through copies: the dashboard never treats them as
// authoritative and every change goes through the gateway package.
package domain
