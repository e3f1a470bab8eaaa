// Package snowflake 进程内唯一的 ID 节点
package snowflake

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// 节点号由 5 位数据中心与 5 位机器号拼成
const maxPartID = 31

var errNotInitialized = errors.New("snowflake: node is not initialized")

var (
	mu   sync.RWMutex
	node *snowflake.Node
)

// Init 只有第一次成功调用生效，之后的调用直接返回 nil
func Init(machineID, dataCenterID int64) error {
	if machineID < 0 || machineID > maxPartID {
		return fmt.Errorf("snowflake: machine id %d out of range [0, %d]", machineID, maxPartID)
	}
	if dataCenterID < 0 || dataCenterID > maxPartID {
		return fmt.Errorf("snowflake: datacenter id %d out of range [0, %d]", dataCenterID, maxPartID)
	}

	mu.Lock()
	defer mu.Unlock()
	if node != nil {
		return nil
	}

	n, err := snowflake.NewNode(dataCenterID<<5 | machineID)
	if err != nil {
		return fmt.Errorf("snowflake: %w", err)
	}
	node = n
	return nil
}

func generate() (snowflake.ID, error) {
	mu.RLock()
	n := node
	mu.RUnlock()
	if n == nil {
		return 0, errNotInitialized
	}
	return n.Generate(), nil
}

func NextID() (int64, error) {
	id, err := generate()
	return id.Int64(), err
}

// NextPublicID 十进制字符串形式，用作资料的 public_id
func NextPublicID() (string, error) {
	id, err := generate()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
