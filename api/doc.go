// Package api
// Author: momentics <momentics@gmail.com>
//
// Contract layer for hioload-iobuf: arena/block interfaces, structured
// allocation errors, and stats snapshots shared by every subsystem.
// Implementations live in pool/ and iobuf/; this package has no dependencies.
package api
