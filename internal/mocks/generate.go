package mocks

//go:generate mockery --name EventStore --srcpkg github.com/aevon-lab/salespulse/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name ReportArchive --srcpkg github.com/aevon-lab/salespulse/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
