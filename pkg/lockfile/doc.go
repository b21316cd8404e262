// Package lockfile provides a single-instance lock for batch jobs.
//
//	lock := lockfile.New(dir, "send_notices")
//	if err := lock.Acquire(ctx, 0); errors.Is(err, lockfile.ErrAlreadyLocked) {
//	    return // another drain is running
//	}
//	defer lock.Release()
//
// On unix the lock is a flock(2) on the file, released by the kernel if the
// process dies. The holder's pid is written into the file.
package lockfile
