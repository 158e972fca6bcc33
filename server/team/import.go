// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package team

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/xuri/excelize/v2"

	"hackportal/server/apperr"
	"hackportal/server/logs"
)

// ImportRow 导入的队伍数据行
type ImportRow struct {
	Row      int    `json:"row"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// ImportResult 导入结果
type ImportResult struct {
	Total   int      `json:"total"`
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
	Created []string `json:"created"`
}

// ParseRows 按表头解析工作表，跳过用户名为空的行
func ParseRows(rows [][]string) ([]ImportRow, error) {
	if len(rows) < 2 {
		return nil, apperr.Validation("NO_DATA", "Excel文件没有数据（需要表头+至少一行数据）")
	}

	colMap := make(map[string]int)
	for i, col := range rows[0] {
		col = strings.TrimSpace(strings.ToLower(col))
		switch col {
		case "队伍", "队伍名称", "队名", "name", "team", "teamname", "team_name":
			colMap["name"] = i
		case "用户名", "账号", "username":
			colMap["username"] = i
		case "密码", "password":
			colMap["password"] = i
		}
	}
	for _, key := range []string{"name", "username", "password"} {
		if _, ok := colMap[key]; !ok {
			return nil, apperr.Validation("MISSING_COLUMN", "缺少必须的列："+key)
		}
	}

	cell := func(row []string, key string) string {
		if idx := colMap[key]; idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var out []ImportRow
	for i := 1; i < len(rows); i++ {
		r := ImportRow{
			Row:      i + 1,
			Name:     cell(rows[i], "name"),
			Username: cell(rows[i], "username"),
			Password: cell(rows[i], "password"),
		}
		if r.Username == "" {
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, apperr.Validation("NO_VALID_DATA", "没有有效的队伍数据")
	}
	return out, nil
}

// Import 逐行创建队伍，单行失败不影响其他行
func Import(ctx context.Context, db *sqlx.DB, rows []ImportRow) (ImportResult, error) {
	result := ImportResult{Total: len(rows), Errors: []string{}, Created: []string{}}

	for _, r := range rows {
		if r.Name == "" || r.Password == "" {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("第%d行: 队伍名称和密码不能为空", r.Row))
			continue
		}
		t, err := Create(ctx, db, CreateInput{Name: r.Name, Username: r.Username, Password: r.Password})
		if apperr.IsKind(err, apperr.KindValidation) {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("第%d行: 用户名 %s 已存在", r.Row, r.Username))
			continue
		}
		if err != nil {
			return result, err
		}
		result.Success++
		result.Created = append(result.Created, t.Name)
	}
	return result, nil
}

// HandleImportTeamsExcel 通过Excel导入队伍
func HandleImportTeamsExcel(c *gin.Context, db *sqlx.DB) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "FILE_REQUIRED", "message": "请上传Excel文件"})
		return
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_FILE", "message": "无法读取Excel文件"})
		return
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "EMPTY_FILE", "message": "Excel文件为空"})
		return
	}
	sheetRows, err := f.GetRows(sheets[0])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "READ_ERROR", "message": "读取工作表失败"})
		return
	}

	rows, err := ParseRows(sheetRows)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	ctx := c.Request.Context()
	result, err := Import(ctx, db, rows)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	logs.WriteLog(ctx, db, logs.TypeAdminOp, logs.LevelInfo, nil, c.ClientIP(),
		fmt.Sprintf("管理员导入队伍：成功 %d，失败 %d", result.Success, result.Failed), result)
	c.JSON(http.StatusOK, result)
}
