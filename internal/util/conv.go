package util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParamUint 读取路径参数中的 ID，非法时写入 400 并返回 false
func ParamUint(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// QueryInt 读取可选的整数查询参数，缺省时返回 def，非法时写入 400 并返回 false
func QueryInt(c *gin.Context, name string, def int) (int, bool) {
	v := c.Query(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return n, true
}
