// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package leaderboard

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/xuri/excelize/v2"

	"hackportal/server/apperr"
)

const exportSheet = "排行榜"

// WriteExcel 将排行榜写为 xlsx
func WriteExcel(w io.Writer, st *Standings) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	headers := []string{"排名", "队伍", "得分", "完成题目", "题目总数"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, h)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FF6B00"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	f.SetCellStyle(exportSheet, "A1", "E1", headerStyle)
	f.SetColWidth(exportSheet, "A", "A", 8)
	f.SetColWidth(exportSheet, "B", "B", 30)
	f.SetColWidth(exportSheet, "C", "E", 12)

	for i, e := range st.Leaderboard {
		row := []interface{}{e.Rank, e.TeamName, e.Score, e.ChallengesCompleted, st.TotalTasks}
		for j, val := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(exportSheet, cell, val)
		}
	}

	return f.Write(w)
}

// HandleExportLeaderboard 导出排行榜 Excel（管理后台）
func HandleExportLeaderboard(c *gin.Context, db *sqlx.DB) {
	st, err := Get(c.Request.Context(), db)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=leaderboard_"+st.GeneratedAt.Format("20060102_150405")+".xlsx")
	c.Status(http.StatusOK)
	if err := WriteExcel(c.Writer, st); err != nil {
		slog.Error("write leaderboard excel failed", "error", err)
	}
}
