// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package filestore stores poll attachments in badger.

	files, err := filestore.Open(filestore.WithDir(cfg.FileStoreDir))
	info, err := files.Put(ctx, upload, actor.Email)
	info, content, err := files.Get(ctx, info.ID)
	err = files.Delete(ctx, info.ID)

With no directory the store runs in memory. Disk-backed stores run value
log GC every five minutes until Close.

Storage failures are apperr.KindDependency; a missing file is
apperr.ErrFileNotFound.
*/
package filestore
