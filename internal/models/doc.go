// Package models defines domain entities and persistence interfaces for steamlink.
//
// [Account] records a Steam account that completed a web login on this machine. It implements [Model], which provides
// ID, timestamps and validation; [Repository] defines the CRUD operations the SQLite repositories implement.
package models
