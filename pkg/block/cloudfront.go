// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package block

import (
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/cloudfront"
	"github.com/aws/aws-sdk-go/service/cloudfront/cloudfrontiface"

	"github.com/snowplow-devops/aws-blocks/pkg/block/blockiface"
)

// NewCloudFrontClient builds the CloudFront client used by the default registry
func NewCloudFrontClient(p client.ConfigProvider) cloudfrontiface.CloudFrontAPI {
	return cloudfront.New(p)
}

// CloudFrontBlocks returns a block for every supported CloudFront operation
func CloudFrontBlocks(newClient func(client.ConfigProvider) cloudfrontiface.CloudFrontAPI) []blockiface.Block {
	const service = "cloudfront"

	return []blockiface.Block{
		newOperation(service, "CreateCachePolicy", newClient, cloudfrontiface.CloudFrontAPI.CreateCachePolicyWithContext),
		newOperation(service, "CreateCloudFrontOriginAccessIdentity", newClient, cloudfrontiface.CloudFrontAPI.CreateCloudFrontOriginAccessIdentityWithContext),
		newOperation(service, "CreateDistribution", newClient, cloudfrontiface.CloudFrontAPI.CreateDistributionWithContext),
		newOperation(service, "CreateDistributionWithTags", newClient, cloudfrontiface.CloudFrontAPI.CreateDistributionWithTagsWithContext),
		newOperation(service, "CreateFunction", newClient, cloudfrontiface.CloudFrontAPI.CreateFunctionWithContext),
		newOperation(service, "CreateInvalidation", newClient, cloudfrontiface.CloudFrontAPI.CreateInvalidationWithContext),
		newOperation(service, "DeleteCachePolicy", newClient, cloudfrontiface.CloudFrontAPI.DeleteCachePolicyWithContext),
		newOperation(service, "DeleteCloudFrontOriginAccessIdentity", newClient, cloudfrontiface.CloudFrontAPI.DeleteCloudFrontOriginAccessIdentityWithContext),
		newOperation(service, "DeleteDistribution", newClient, cloudfrontiface.CloudFrontAPI.DeleteDistributionWithContext),
		newOperation(service, "DeleteFunction", newClient, cloudfrontiface.CloudFrontAPI.DeleteFunctionWithContext),
		newOperation(service, "DescribeFunction", newClient, cloudfrontiface.CloudFrontAPI.DescribeFunctionWithContext),
		newOperation(service, "GetCachePolicy", newClient, cloudfrontiface.CloudFrontAPI.GetCachePolicyWithContext),
		newOperation(service, "GetCloudFrontOriginAccessIdentity", newClient, cloudfrontiface.CloudFrontAPI.GetCloudFrontOriginAccessIdentityWithContext),
		newOperation(service, "GetDistribution", newClient, cloudfrontiface.CloudFrontAPI.GetDistributionWithContext),
		newOperation(service, "GetDistributionConfig", newClient, cloudfrontiface.CloudFrontAPI.GetDistributionConfigWithContext),
		newOperation(service, "GetInvalidation", newClient, cloudfrontiface.CloudFrontAPI.GetInvalidationWithContext),
		newOperation(service, "ListCachePolicies", newClient, cloudfrontiface.CloudFrontAPI.ListCachePoliciesWithContext),
		newOperation(service, "ListCloudFrontOriginAccessIdentities", newClient, cloudfrontiface.CloudFrontAPI.ListCloudFrontOriginAccessIdentitiesWithContext),
		newOperation(service, "ListDistributions", newClient, cloudfrontiface.CloudFrontAPI.ListDistributionsWithContext),
		newOperation(service, "ListFunctions", newClient, cloudfrontiface.CloudFrontAPI.ListFunctionsWithContext),
		newOperation(service, "ListInvalidations", newClient, cloudfrontiface.CloudFrontAPI.ListInvalidationsWithContext),
		newOperation(service, "ListTagsForResource", newClient, cloudfrontiface.CloudFrontAPI.ListTagsForResourceWithContext),
		newOperation(service, "PublishFunction", newClient, cloudfrontiface.CloudFrontAPI.PublishFunctionWithContext),
		newOperation(service, "TagResource", newClient, cloudfrontiface.CloudFrontAPI.TagResourceWithContext),
		newOperation(service, "UntagResource", newClient, cloudfrontiface.CloudFrontAPI.UntagResourceWithContext),
		newOperation(service, "UpdateDistribution", newClient, cloudfrontiface.CloudFrontAPI.UpdateDistributionWithContext),
	}
}
