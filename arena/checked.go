//go:build !arena_nocheck

package arena

const checked = true
