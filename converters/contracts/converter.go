package contracts

import "context"

type IConverter interface {
	Supports(from, to string) bool
	Convert(ctx context.Context, src, dest, from, to string) error
}

type IJoiner interface {
	Join(ctx context.Context, files []string, dest string) error
}
