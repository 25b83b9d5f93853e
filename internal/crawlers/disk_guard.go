package crawlers

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/RecoveryAshes/SheetHarvest/internal/utils"
)

// CheckFreeSpace 检查dir所在磁盘的剩余空间
// minFreeMB<=0时不检查; 无法获取磁盘信息时只记录警告
func CheckFreeSpace(dir string, minFreeMB int) error {
	if minFreeMB <= 0 {
		return nil
	}

	usage, err := disk.Usage(dir)
	if err != nil {
		utils.Warnf("无法获取磁盘空间信息 [%s]: %v", dir, err)
		return nil
	}

	freeMB := usage.Free / (1024 * 1024)
	if freeMB < uint64(minFreeMB) {
		return fmt.Errorf("磁盘剩余空间不足: %s 剩余 %d MB, 至少需要 %d MB", dir, freeMB, minFreeMB)
	}

	utils.Debugf("磁盘剩余空间: %d MB (%.1f%% 已用)", freeMB, usage.UsedPercent)
	return nil
}
