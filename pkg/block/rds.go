// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package block

import (
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"

	"github.com/snowplow-devops/aws-blocks/pkg/block/blockiface"
)

// NewRDSClient builds the RDS client used by the default registry
func NewRDSClient(p client.ConfigProvider) rdsiface.RDSAPI {
	return rds.New(p)
}

// RDSBlocks returns a block for every supported RDS operation
func RDSBlocks(newClient func(client.ConfigProvider) rdsiface.RDSAPI) []blockiface.Block {
	const service = "rds"

	return []blockiface.Block{
		newOperation(service, "AddTagsToResource", newClient, rdsiface.RDSAPI.AddTagsToResourceWithContext),
		newOperation(service, "CopyDBSnapshot", newClient, rdsiface.RDSAPI.CopyDBSnapshotWithContext),
		newOperation(service, "CreateDBCluster", newClient, rdsiface.RDSAPI.CreateDBClusterWithContext),
		newOperation(service, "CreateDBClusterSnapshot", newClient, rdsiface.RDSAPI.CreateDBClusterSnapshotWithContext),
		newOperation(service, "CreateDBInstance", newClient, rdsiface.RDSAPI.CreateDBInstanceWithContext),
		newOperation(service, "CreateDBInstanceReadReplica", newClient, rdsiface.RDSAPI.CreateDBInstanceReadReplicaWithContext),
		newOperation(service, "CreateDBParameterGroup", newClient, rdsiface.RDSAPI.CreateDBParameterGroupWithContext),
		newOperation(service, "CreateDBSnapshot", newClient, rdsiface.RDSAPI.CreateDBSnapshotWithContext),
		newOperation(service, "CreateDBSubnetGroup", newClient, rdsiface.RDSAPI.CreateDBSubnetGroupWithContext),
		newOperation(service, "DeleteDBCluster", newClient, rdsiface.RDSAPI.DeleteDBClusterWithContext),
		newOperation(service, "DeleteDBInstance", newClient, rdsiface.RDSAPI.DeleteDBInstanceWithContext),
		newOperation(service, "DeleteDBSnapshot", newClient, rdsiface.RDSAPI.DeleteDBSnapshotWithContext),
		newOperation(service, "DescribeDBClusterSnapshots", newClient, rdsiface.RDSAPI.DescribeDBClusterSnapshotsWithContext),
		newOperation(service, "DescribeDBClusters", newClient, rdsiface.RDSAPI.DescribeDBClustersWithContext),
		newOperation(service, "DescribeDBEngineVersions", newClient, rdsiface.RDSAPI.DescribeDBEngineVersionsWithContext),
		newOperation(service, "DescribeDBInstances", newClient, rdsiface.RDSAPI.DescribeDBInstancesWithContext),
		newOperation(service, "DescribeDBSnapshots", newClient, rdsiface.RDSAPI.DescribeDBSnapshotsWithContext),
		newOperation(service, "DescribeDBSubnetGroups", newClient, rdsiface.RDSAPI.DescribeDBSubnetGroupsWithContext),
		newOperation(service, "DescribeEvents", newClient, rdsiface.RDSAPI.DescribeEventsWithContext),
		newOperation(service, "FailoverDBCluster", newClient, rdsiface.RDSAPI.FailoverDBClusterWithContext),
		newOperation(service, "ListTagsForResource", newClient, rdsiface.RDSAPI.ListTagsForResourceWithContext),
		newOperation(service, "ModifyDBInstance", newClient, rdsiface.RDSAPI.ModifyDBInstanceWithContext),
		newOperation(service, "PromoteReadReplica", newClient, rdsiface.RDSAPI.PromoteReadReplicaWithContext),
		newOperation(service, "RebootDBInstance", newClient, rdsiface.RDSAPI.RebootDBInstanceWithContext),
		newOperation(service, "RemoveTagsFromResource", newClient, rdsiface.RDSAPI.RemoveTagsFromResourceWithContext),
		newOperation(service, "RestoreDBInstanceFromDBSnapshot", newClient, rdsiface.RDSAPI.RestoreDBInstanceFromDBSnapshotWithContext),
		newOperation(service, "StartDBCluster", newClient, rdsiface.RDSAPI.StartDBClusterWithContext),
		newOperation(service, "StartDBInstance", newClient, rdsiface.RDSAPI.StartDBInstanceWithContext),
		newOperation(service, "StopDBCluster", newClient, rdsiface.RDSAPI.StopDBClusterWithContext),
		newOperation(service, "StopDBInstance", newClient, rdsiface.RDSAPI.StopDBInstanceWithContext),
	}
}
