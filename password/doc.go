// Package password provides Argon2id credential hashing in PHC string
// format for the local directory backend, and generation of admin-issued
// temporary passwords from an alphabet without visually ambiguous
// characters.
package password
