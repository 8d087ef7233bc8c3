package kcount

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mars-research/kcount/hashpartition"
)

// dumpPartitions writes each partition to "{prefix}{shard_id}", one
// "key count" pair per line.
func dumpPartitions(prefix string, partitions []*hashpartition.HashPartition) error {
	for shard, hp := range partitions {
		if err := dumpPartition(fmt.Sprintf("%s%d", prefix, shard), hp); err != nil {
			return fmt.Errorf("kcount: dumping shard %d: %w", shard, err)
		}
	}
	return nil
}

func dumpPartition(path string, hp *hashpartition.HashPartition) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := uint64(0); i < hp.Capacity(); i++ {
		key, value, ok := hp.EntryAt(i)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "%d %d\n", key, value); err != nil {
			return err
		}
	}
	return w.Flush()
}
